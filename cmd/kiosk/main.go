// Command kiosk runs the webcam attendance kiosk.
package main

func main() {
	Execute()
}
