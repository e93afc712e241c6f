/*
Package pmap provides persistent, insertion-ordered maps. A Map is
never modified after it is built; Set, Delete and friends return a
new Map that shares nothing mutable with its parent, so any number of
goroutines can read any version concurrently.

Identity

Every mutator returns the receiver itself when the operation would not
change the observable contents: setting a key to a value it already
has, deleting an absent key, and so on. Callers can therefore detect
change by pointer comparison:

	next := m.Set("k", 1)
	if next != m {
		// something changed
	}

Values are compared with SameValueZero unless a different equality is
given to NewWithEqual. SameValueZero treats NaN as equal to itself and
+0 as equal to -0.

Order

Keys iterate in the order they were first inserted. Updating the value
of an existing key keeps its position; deleting a key and inserting it
again moves it to the end. Rekey replaces a key in place.

Defaults

WithDefault is a Map where one sentinel value is never physically
stored. Setting a key to the default deletes it, and Get of a missing
key yields the default.
*/
package pmap
