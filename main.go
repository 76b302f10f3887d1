// Package main runs the repokit repository-operation service.
package main

import "github.com/repokit/repokit/internal"

func main() {
	internal.Run()
}
