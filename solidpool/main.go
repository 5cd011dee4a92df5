package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sjy-dv/solidpool/solidpool/launch"
)

func init() {
	godotenv.Load()
	os.Setenv("TZ", "UTC")
	time.Local = time.UTC
}

func main() {
	BootSystem()
}

func BootSystem() {
	launcher := launch.LoadEnv()
	launcher.LaunchSolidPoolSystem()
}
