/*
   NibConv - Commodore 1541 GCR disk image converter
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of NibConv.

   NibConv is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   NibConv is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with NibConv. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/nibconv/pkg/control"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve [-a|--address {address}] [-r|--repo {repo base folder}]`,
		"API server command",
		`Use the serve command for running the conversion API server. Images are either
uploaded with a request, or referenced in the image repository as repo://{path}.`,
		"", loggingHelp+runnerHelpEpilogue, s.Run)

	s.AddSetting(&s.Address, "address", "a", true, ":8541",
		"listen address and port of API server", false)
	s.AddSetting(&s.Repository, "repo", "r", true, nil,
		`image repo base folder; when omitted, converting
images from the server's file system is prohibited`, false)

	return s
}

//
type Serve struct {
	//
	Runner
	//
	Address    string
	Repository string
}

//
func (s *Serve) Run() error {

	api := control.NewAPIServer(s.Address, s.Repository)
	stopped := make(chan error, 1)
	go func() {
		stopped <- api.Serve()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	sigCount := 0

	for {

		select {

		case sig := <-sigs: // interrupt signal
			log.WithField("signal", sig).Info("signal received")
			sigCount++

			switch sigCount {

			case 1:
				log.Info("shutting down, hit Ctrl-C twice to force exit...")
				go func() {
					if err := api.Stop(); err != nil {
						log.Errorf("error stopping API server: %v", err)
					}
				}()

			case 2:
				log.Warn("shutdown in progress, hit Ctrl-C again to force exit")

			default:
				log.Warn("forcing server to stop immediately")
				os.Exit(1)
			}

		case err := <-stopped: // shutdown sequence complete
			if err != nil {
				log.Errorf("API server closed with error: %v", err)
				return err
			}
			log.Info("NibConv stopped")
			return nil
		}
	}
}
