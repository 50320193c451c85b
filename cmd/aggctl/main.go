package main

import (
	_ "time/tzdata"

	"github.com/dmitrijs2005/dailyagg/internal/aggctl"
)

func main() {
	aggctl.Execute()
}
