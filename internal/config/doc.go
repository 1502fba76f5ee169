// Package config defines configuration for urlmap.
package config
