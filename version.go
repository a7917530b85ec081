package svscan

// Version is the current version of the go-svscan library
const Version = "1.0.0"
