/*
Package dsl builds command flows in Go instead of drawing them in the editor.

It is mostly useful for tests and for generating projects programmatically.

	b := dsl.New("bot")
	ping := b.Command("ping").Describe("Replies with pong")
	ping.Start().
		Then(ping.Node("reply", "builtin:reply").Set("text", "pong"))

	loader, err := b.Build() // a ports.ProjectLoader
*/
package dsl
