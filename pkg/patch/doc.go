/*
Package patch is the core engine: it applies a queue of heterogeneous
edit requests to an in-memory line buffer and replaces the target file
atomically.

	             +--------------+
	             |    Engine    |
	             | (apply/prev) |
	             +------+-------+
	                    |
	     +--------------+--------------+
	     |              |              |
	+----+----+   +-----+-----+   +----+----+
	| Request |   |  Indent   |   | Matcher |
	| (8 ops) |   | Inference |   | (regex) |
	+---------+   +-----------+   +---------+

🎯 Purpose:
- Applies line-, range-, and pattern-addressed edits to one file
- Orders edits so earlier mutations never invalidate later line numbers
- Infers indentation so injected code matches its surroundings
- Writes all-or-nothing: backup first, atomic replace, restore on failure

🔄 Flow:
1. Caller builds []Request (typed variants, or compiled from Specs)
2. Engine locks the path, loads the file as lines
3. Whole batch is validated; any malformed request rejects everything
4. Requests are applied to a copy of the lines, failures isolated
5. If at least one applied: backup, write atomically, diff
6. Result reports per-request outcomes plus batch counts

⚡ Key invariants:
- Line-anchored requests apply before pattern-anchored ones, highest
  line first, so line numbers never drift under multiple edits
- Pattern requests re-scan the current buffer at application time
- ReplacePatternAll skips past its own insertions, so a replacement
  that matches its own pattern still terminates
- The on-disk file is only ever the original or the fully-applied
  result, never an intermediate state

🤝 Collaborators:
- match.Matcher: cached regex compilation and line scanning
- backup.Manager: timestamped snapshot before every write (injected)
- diff.Unified: the unified diff attached to every result

📝 Design notes:
The engine holds no batch state between calls: Apply is a function of
(file, requests) plus the documented backup/write side effects, so two
calls can never contaminate each other. Requests are immutable values;
the engine mutates only its private copy of the lines.
*/
package patch
