// Package hwbreak keeps the four-slot hardware breakpoint table used by the
// debug stub and encodes it into the x86 DR7 control register.
//
// A [Table] is owned by one debug session. Breakpoints are placed first-fit:
//
//	var t hwbreak.Table
//	slot, err := t.Set(0xffffffff80100000, 1, hwbreak.Exec)
//	dr7, changed := t.CorrectDR7(dr7)
//
// [Table.CorrectDR7] only touches the enable bit and the length/type field
// of a slot whose state disagrees with the register, so it can be applied
// repeatedly on every debugger exit.
package hwbreak
