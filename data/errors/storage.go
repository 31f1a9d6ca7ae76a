package errors

func StorageUnavailable(err error, name string) error {
	return newError(ErrStorageUnavailable, err, "storage '%s' unavailable", name)
}

func StorageAccessDenied(err error, name string) error {
	return newError(ErrStorageAccessDenied, err, "access to storage '%s' denied", name)
}

func StorageIO(err error, name string) error {
	return newError(ErrStorageIO, err, "i/o on storage '%s' failed", name)
}
