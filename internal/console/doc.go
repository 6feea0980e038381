// Package console delivers Ctrl+C while a library holds a locked OS thread.
// On Windows SDL3 replaces the console control handler during init, so the
// handler has to be registered again afterwards. Elsewhere os/signal is
// enough and these functions do nothing.
package console
