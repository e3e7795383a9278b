// Command airscroll scrolls the focused window with vertical finger flicks.
package main

import (
	"os"

	"github.com/ayusman/airpointer/internal/config"
	"github.com/ayusman/airpointer/internal/driver"
)

func main() {
	os.Exit(driver.Main("AirScroll", config.ProfileScroll))
}
