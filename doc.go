/*
Package openag provides CLI tooling to provision the CouchDB server of an OpenAg farm.

The openag command configures a local server, creates the databases of the platform
with their design documents, replicates them with a cloud server, loads fixtures,
and keeps firmware module types in sync with the git repositories they are published in.

Components live under pkg/ and may be used as a library:

	pkg/couch         CouchDB client, backed by kivik
	pkg/serverconfig  server configuration
	pkg/provision     databases and design documents
	pkg/replication   replications with a cloud server
	pkg/fixture       fixture loading
	pkg/modsync       firmware module types synchronization
	pkg/config        settings of the CLI
*/
package openag
