/*
Package domain contains the core data model of the disbotter flow compiler.

It defines the graph a user assembles in the editor (Flow, Node, Connection),
the project that groups flows into compile units (Project, Command), the
addresses of values inside a flow (PortIdentifier), and the compiled output
(Program, File). The package is kept free of I/O so it can be shared by the
compiler, the loaders and the transport adapters.

# Key Entities

  - PortIdentifier: Addresses an input, an output, a global binding or compile-time data.
  - Flow: Nodes plus the wires between them. Flow wires use the __flow_in__/__flow_out__ keys.
  - Command: One compile unit (a slash command) with its flow and declared options.
  - Program: The ordered list of generated files.
  - CompileError: A failure tagged with one of the Err* kinds.
*/
package domain
