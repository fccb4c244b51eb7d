/*
Package writes statically computes the write set of a program: for every
source line, the names of variables that line may assign to. The client UI
uses the write set to decide which lines deserve a projection display at
all, before any run happens.

Analysis works on the parsed syntax tree. Assignment targets and loop
variables record the written name directly; subscript targets record the
root variable of the access chain ('a[0][1] = ...' writes 'a'). Attribute
targets mutate an object rather than rebind a name and record nothing.

Injected no-op lines can render an otherwise valid program unparseable, for
example when they follow a class body. When parsing fails, the analyzer
blanks every no-op line at or before the reported error line and retries,
giving up only when a retry makes no further progress.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the steplens authors

*/
package writes
