// Package common holds the pieces shared by the command line and the marketplace
// libraries: the configuration struct and the logger factory that plugs into
// dragonboats logger package.
//
// Every package obtains its logger with logger.GetLogger("<name>"); InitLoggers
// installs the custom format (date time | LEVEL | package | message) and applies
// the configured level to all of them.
package common
