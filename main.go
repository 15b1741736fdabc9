// Command careers-crawler finds careers pages, job titles and contact
// emails for the company sites listed in a spreadsheet.
package main

import (
	"os"

	"github.com/JakeFAU/careers-crawler/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
