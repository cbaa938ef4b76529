// Package textutil provides small text helpers shared by the exporters and
// the terminal front end.
package textutil
