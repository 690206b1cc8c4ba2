// Command ecgsite runs the ECO CONSTRUCTION GROUP website.
//
//	ecgsite [-root DIR]                 serve
//	ecgsite [-root DIR] ctl COMMAND...  run a command on the control socket of a running server
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ecogroup/ecgsite/conf"
	"github.com/ecogroup/ecgsite/uds"
)

func main() {
	root := flag.String("root", envOr("ECGSITE_ROOT", "."), "app root holding config/, data/ and uploads/")
	flag.Parse()

	if flag.Arg(0) == "ctl" {
		if err := ctl(*root, flag.Args()[1:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if err := serve(*root); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func serve(appRoot string) error {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	app, err := conf.BaseInit(appRoot, rootCtx, rootCancel)
	if err != nil {
		return err
	}
	defer app.ResourceCleanUp()

	steps := []func() error{
		app.PrepareKVDatabase,
		app.PrepareSQLDatabases,
		app.PrepareBackend,
		app.LoadStorageConf,
		app.PrepareFileStore,
		app.PrepareI18n,
		app.PrepareWebSessions,
		app.LoadAdminConf,
		app.PrepareHTMLTemplateStore,
		app.PreparePDFGenerator,
	}
	for _, step := range steps {
		if err = step(); err != nil {
			return err
		}
	}

	app.PrepareThrottleBucketStore(5*time.Minute, time.Hour)
	app.PrepareJobScheduler()
	app.ScheduleMaintenance()
	app.PrepareLiveFeed()
	if err = app.PrepareUDSService(app.Commands()); err != nil {
		return err
	}
	app.PrepareWebService(app.Listen, app.WebApp().Router())

	if err = app.StartServices(); err != nil {
		rootCancel()
		return err
	}
	log.Printf("[INFO] %s serving on %s", app.AppName, app.Listen)
	err = app.WaitServicesDone()
	if err != nil {
		rootCancel()
	}
	return err
}

func ctl(appRoot string, args []string) error {
	if len(args) == 0 {
		args = []string{"help"}
	}
	c, err := conf.LoadCore(appRoot)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return uds.Send(ctx, c.SocketFile(), strings.Join(args, " "), os.Stdout)
}
