// nsdctl is a command line client for the NSD control channel. It speaks
// the control protocol over mutual TLS and prints server replies.
package main

func main() {
	Execute()
}
