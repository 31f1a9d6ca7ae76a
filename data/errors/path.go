package errors

func InvalidPath(err error, path string) error {
	return newError(ErrInvalidPath, err, "'%s'", path)
}

func PathOutsideBase(path, base string) error {
	return newError(ErrInvalidPath, nil, "'%s' is not located under base '%s'", path, base)
}

func NotExist(err error, path string) error {
	return newError(ErrNotExist, err, "'%s'", path)
}

func IsDirectory(path string) error {
	return newError(ErrIsDirectory, nil, "'%s'", path)
}

func InvalidContent(err error, path string, content any) error {
	return newError(ErrInvalidContent, err, "unsupported content of type %T for '%s'", content, path)
}
