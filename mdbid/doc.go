// Package mdbid handles the database-assigned "_id" field of schema-less documents.
package mdbid
