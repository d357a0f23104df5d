// Command coverletter generates personalized cover letters from
// word-processing templates.
package main

import (
	"os"
)

func main() {
	os.Exit(Execute(os.Args[1:]))
}
