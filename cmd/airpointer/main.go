// Command airpointer moves the cursor to the index fingertip and clicks on
// a pinch.
package main

import (
	"os"

	"github.com/ayusman/airpointer/internal/config"
	"github.com/ayusman/airpointer/internal/driver"
)

func main() {
	os.Exit(driver.Main("AirPointer", config.ProfilePointer))
}
