// Command api runs the HTTP and gRPC servers without the CLI.
package main

import (
	"go.uber.org/fx"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
