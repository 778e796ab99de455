/*
Package ports defines the driven ports (interfaces) of the disbotter compiler.

These interfaces decouple compilation from the places projects and templates
come from and the places compiled programs go to.

# Key Interfaces

  - TemplateLoader: Builds the node template catalog (e.g., from Lua scripts or memory).
  - ProjectLoader: Reads a project (e.g., from a .dbp file or a Loam vault).
  - ProgramStore: Caches compiled programs by key.
  - ProgramExporter: Writes a compiled program somewhere (e.g., a directory).
  - Locker: Serializes work on the same key across goroutines or replicas.
*/
package ports
