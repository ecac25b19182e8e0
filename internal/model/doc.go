// Package model defines the core domain models shared by the AMO inventory client.
package model
