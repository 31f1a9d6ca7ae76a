package errors

func Config(err error, format string, args ...any) error {
	return newError(ErrConfig, err, format, args...)
}

func DataSource(err error, format string, args ...any) error {
	return newError(ErrDataSource, err, format, args...)
}

func TemplateRender(err error, key, path string) error {
	return newError(ErrTemplateRender, err, "template '%s' for '%s'", key, path)
}
