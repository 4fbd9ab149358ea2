package bundle

// Bundle names declared by Default.
const (
	AllCSS = "all_css"
	LibsJS = "libs_js"
	AppJS  = "app_js"
)

// Default builds the frozen registry of the TileMap application's bundles.
func Default() (*Registry, error) {
	reg := NewRegistry()

	if _, err := reg.Define(AllCSS,
		Files(
			"css/bootstrap.css",
			"css/bootstrap-responsive.css",
			"css/TileMap.css",
		),
		[]string{"cssmin"},
		"build/all.css",
	); err != nil {
		return nil, err
	}

	// jQuery loads from a CDN and Modernizr in the document head.
	if _, err := reg.Define(LibsJS,
		Files(
			"js/libs/underscore.js",
			"js/libs/backbone.js",
			"js/libs/bootstrap.js",
		),
		[]string{"uglifyjs"},
		"build/libs.js",
	); err != nil {
		return nil, err
	}

	coffee, err := New(
		Files(
			"js/app/TileMap.coffee",
			"js/app/ColorMap.coffee",
			"js/app/Mandelbrot.coffee",
		),
		[]string{"coffeescript"},
		"build/coffee.js",
		WithDebug(false),
	)
	if err != nil {
		return nil, err
	}

	if _, err := reg.Define(AppJS,
		[]AssetRef{Nested(coffee)},
		[]string{"uglifyjs"},
		"build/app.js",
	); err != nil {
		return nil, err
	}

	return reg.Freeze(), nil
}

// MustDefault is Default for callers that treat a malformed declaration as fatal.
func MustDefault() *Registry {
	reg, err := Default()
	if err != nil {
		panic(err)
	}
	return reg
}
