// Package model describes the objects manipulated by the openag database tooling.
//
// The object model is composed of:
//
//  Records:
//    A JSON document stored in a CouchDB database under its "_id". The server
//    assigns an opaque "_rev" on every write, which must be sent back to
//    update the document.
//
//  Repositories:
//    Firmware module types may point to the git repository hosting the
//    module. The "module.json" manifest at the root of that repository is the
//    source of truth for the record's metadata.
//
//  Fixtures:
//    A set of records keyed by database name, used to seed or update a server.
//
//  Configuration parameters:
//    A (section, key, value) setting of the CouchDB server itself.
package model
