// Package viz holds the terminal styling and ascii charts shared by the
// progress view and the bench command.
package viz
