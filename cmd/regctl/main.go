// Command regctl inspects and edits registry stores from the command line.
package main

func main() {
	execute()
}
