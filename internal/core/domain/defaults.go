package domain

// DefaultRequiredPackages must be present on every worker for the cluster runtime to start.
var DefaultRequiredPackages = []string{
	"dask",
	"distributed",
	"bokeh",
	"cloudpickle",
	"msgpack",
}

// DefaultOptionalPackages are installed at the locked version when the lockfile has them.
var DefaultOptionalPackages = []string{
	"MarkupSafe",
	"click",
	"dask-pyspy",
	"fsspec",
	"heapdict",
	"jinja2",
	"locket",
	"lz4",
	"numpy",
	"packaging",
	"pandas",
	"partd",
	"psutil",
	"pyarrow",
	"pyparsing",
	"pyyaml",
	"s3fs",
	"sortedcontainers",
	"tblib",
	"toolz",
	"tornado",
	"urllib3",
	"zict",
}
