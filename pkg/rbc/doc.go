// Package rbc models a register-based bytecode program for whole-program
// optimization. A program is a set of load units, each holding classes that
// own their virtual and direct methods; method bodies are decoded instruction
// lists that passes mutate in place.
//
// The model is designed for:
//   - Stable instruction identity (pointers survive in-place edits, so a pass
//     can record instructions during a scan and patch them afterwards)
//   - A closed opcode set with exhaustive dispatch (an opcode outside the set
//     reaching a translation table is a bug, not a recoverable condition)
//   - Call-target references that double as method handles: an instruction's
//     Target may point at an abstract or external declaration, which a
//     resolver maps to the definition that would actually run
//
// Method bodies begin with one parameter-load pseudo-instruction per
// parameter; in an instance method the first of these loads the receiver.
//
// Argument encodings: an invoke either lists its source registers explicitly
// or, in range form, names a contiguous register window by base and size.
// The two encodings are mutually exclusive, and a range invoke cannot
// represent zero arguments.
package rbc
