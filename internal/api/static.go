package api

import (
	"io/fs"

	webpkg "github.com/hartyporpoise/smusensors/web"
)

// staticFiles is the embedded dashboard. It is served from the /static/
// prefix and index.html is served at /.
var staticFiles fs.FS = webpkg.StaticFiles
