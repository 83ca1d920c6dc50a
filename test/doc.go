// Package test provides fixtures shared by tests in other packages.
package test
