// Command pmrtrace exercises a pmr.Resource from the command line: it
// drives synthetic allocation workloads and prints the resulting
// status report, for poking at the library without writing a test.
package main

func main() {
	execute()
}
