// Package devirtualize converts eligible instance methods into static
// methods and rewrites every call site that reaches them, eliminating
// virtual dispatch and, where possible, the receiver argument itself.
//
// # What gets converted
//
// Two method populations are considered, both restricted to a caller-chosen
// target subset of classes:
//
//   - Virtual methods with monomorphic dispatch: slots for which the mono
//     package proves exactly one implementation can ever be reached.
//   - Direct methods: non-constructor, non-static methods declared on a
//     target class.
//
// A candidate is dropped when retention rules keep it, when it is external
// (no body to rewrite), or when it is abstract. Survivors are split by the
// receiver-usage analysis into methods that read their receiver and methods
// that only load it.
//
// # Receiver-usage analysis
//
// The analysis is register-identity based, not a liveness analysis: the
// receiver's register is captured from the leading receiver-load
// pseudo-instruction, and any later appearance of that register as a source
// operand, explicit or inside a range window, counts as a use, even if the
// slot was reassigned to an unrelated value in between. This over-reports
// uses and therefore keeps more receivers than strictly necessary, which is
// safe; a precise analysis would change which methods land in which bucket.
//
// # Call-site rewriting
//
// Every invoke whose resolved target is being converted has its opcode
// translated to the static form of the same encoding (virtual, super and
// direct all map to static) and its target repointed at the callee. When the
// receiver is dropped, the argument list shrinks too: explicit-form operands
// shift down one position, and a range window advances its base and shrinks
// by one. A range window of size one cannot shrink, since a range invoke
// cannot encode zero arguments, so the instruction is replaced wholesale with an
// explicit-form static invoke carrying no arguments. Replacements are
// collected during the scan and applied afterwards, never while iterating.
//
// # Phases
//
// A run executes up to four phases in a fixed order: virtual-not-using-this,
// direct-not-using-this, virtual-using-this, direct-using-this. Each phase
// rewrites call sites across the whole scope and then staticizes its
// candidates before the next phase re-scans the mutated program. Call sites
// finalized by an earlier phase are already static and must never reappear
// in a later phase's target set; the rewriter treats such a hit as a fatal
// internal-consistency error, as continuing would miscompile the program.
package devirtualize
