package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/layerdm/host"
	"github.com/milk9111/layerdm/prefabs"
)

func main() {
	sceneName := flag.String("scene", "markers.yaml", "scene build spec in prefabs/")
	savePath := flag.String("save", "scene.yaml", "file written by the S key")
	slice := flag.Bool("slice", false, "start in the slice view")
	watch := flag.Bool("watch", true, "reload prefabs/ when files change")
	flag.Parse()

	spec, err := prefabs.LoadViewSpec()
	if err != nil {
		log.Fatalf("load view spec: %v", err)
	}
	view, err := host.NewView(spec)
	if err != nil {
		log.Fatal(err)
	}
	defer view.Close()
	if err := view.LoadScene(*sceneName); err != nil {
		log.Fatalf("load scene: %v", err)
	}
	if *slice {
		if err := view.SetSliceMode(true); err != nil {
			log.Fatal(err)
		}
	}

	game := NewGame(view, *savePath)
	if *watch {
		w, err := prefabs.WatchDefault()
		if err != nil {
			log.Printf("watch prefabs: %v", err)
		} else {
			defer w.Close()
			game.watcher = w
		}
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(spec.Width, spec.Height)
	ebiten.SetWindowTitle(spec.Title)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
