// Package fglog follows Fall Guys client logs and reports completed shows.
//
// The client writes Player.log while it runs and renames it to
// Player-prev.log on the next start. A Watcher reads the previous log once,
// then follows the live one, and emits:
//   - EventLogDate when a client start date is seen
//   - EventRoundsPreview with the rounds of the show in progress (best effort)
//   - EventRoundsParsed with the final rounds once the client writes the
//     show summary
//
// Lines are only handed to the authoritative parser once the show they
// belong to has completed, so a half-written show is never reported as
// final and an interrupted watcher rereads it from its start.
//
// # Basic Usage
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	events, errs, err := fglog.Watch(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    select {
//	    case ev, ok := <-events:
//	        if !ok {
//	            return
//	        }
//	        if ev.Type == fglog.EventRoundsParsed {
//	            last := ev.Rounds[len(ev.Rounds)-1]
//	            fmt.Printf("show over after %d rounds, crown: %v\n", len(ev.Rounds), last.Crown)
//	        }
//	    case err, ok := <-errs:
//	        if !ok {
//	            return
//	        }
//	        log.Printf("error: %v", err)
//	    }
//	}
//
// To parse a finished log in one go, use ParseFile.
//
// # Platform Support
//
// Log paths are auto-detected from the standard Windows location and the
// Steam Proton prefix. Set FGLOG_LOGDIR or use WithLogDir elsewhere.
//
// # Disclaimer
//
// This is an unofficial tool and is not affiliated with Mediatonic.
package fglog
