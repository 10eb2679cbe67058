// Package eh implements landing-pad dispatch for in-flight exceptions.
//
// An exception is identified by its info pointer. The unwind header sits
// immediately before the info in memory and its first word is the address
// of the thrown type's type-info descriptor. A landing pad evaluates its
// clauses in order against that type and either produces a
// (header, selector) pair in caller storage or hands the exception back
// for further unwinding.
package eh
