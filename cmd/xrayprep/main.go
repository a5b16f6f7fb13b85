// Command xrayprep plans X-ray absorption sample preparation from the
// command line or serves the same solvers over HTTP.
package main

func main() {
	Execute()
}
