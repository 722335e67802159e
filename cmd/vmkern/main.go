// Command vmkern drives the virtual memory manager through a process
// lifecycle and serves its state for inspection.
package main

func main() {
	Execute()
}
