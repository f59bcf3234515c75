// Package config loads, validates and writes the xlclean configuration file.
//
// The file is YAML with an apiVersion and kind header. It is checked against
// a JSON schema reflected from [Config] before it is decoded, so errors point
// at the offending YAML path. The configuration never contains filter rules;
// those are compiled into the binary.
package config
