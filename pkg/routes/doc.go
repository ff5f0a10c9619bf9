// Package routes turns a mock directory tree into an immutable route table.
//
// Directory paths become URL paths, filenames encode HTTP methods, and
// directories named [param] capture one path segment:
//
//	mocks/
//	  api/
//	    users/
//	      GET.json        -> GET /api/users
//	      POST.json       -> POST /api/users
//	      [id]/
//	        GET.json      -> GET /api/users/:id
//
// Compile walks the tree depth-first in lexicographic order, producing a
// Table plus non-fatal diagnostics for files it had to skip and for
// bracket-shaped directory names it kept as literal segments. Tables are
// never mutated after construction; hot reload publishes a fresh Table.
package routes
