// Package storage writes harvested files to disk and mirrors them to S3.
//
// Manager stores files below a base directory using a temporary file and a
// rename, so a crash never leaves a truncated media file under its final
// name. On start it scans the directory tree and afterwards answers Exists
// from memory, which lets re-runs and resumed harvests skip media that is
// already present.
//
// S3Mirror uploads a finished harvest (media directory and CSV files) to an
// S3 compatible bucket with a bounded number of concurrent uploads.
//
//	store, err := storage.NewManager("downloads")
//	if err != nil {
//	    return err
//	}
//	if !store.Exists("#cats/C1a2B3.jpg") {
//	    _, err = store.Save(body, "#cats/C1a2B3.jpg")
//	}
package storage
