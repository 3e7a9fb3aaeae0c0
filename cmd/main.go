package main

import (
	"github.com/ecomcore/order/internal/app"
	"github.com/ecomcore/order/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
