package app

import (
	"log"
	"mime"
)

// Drawing formats clients attach to requests. Uploads without a usable Content-Type are typed
// from these.
func init() {
	ensureMimeType(".dwg", "image/vnd.dwg")
	ensureMimeType(".dxf", "image/vnd.dxf")
	ensureMimeType(".step", "model/step")
	ensureMimeType(".stp", "model/step")
	ensureMimeType(".heic", "image/heic")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
