// Package model defines the stable boundary types shared by the ledger, its
// transport and its persistence layer.
//
// Status ordinals, content hashes and identities are part of the external
// contract: every surface (gRPC, SQLite, CLI JSON) preserves their encodings.
package model
