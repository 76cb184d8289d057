// Package integration contains the Integration bounded context.
// This context describes how project data is pulled from the external
// project-management system of record.
//
// Key concepts:
//   - ProjectImporter: Port interface for listing and fetching remote projects
//   - RemoteProject: Value object for an entry of the remote project list
//   - RawPayload: Untyped JSON document as returned by the remote API
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
