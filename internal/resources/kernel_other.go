//go:build !unix

package resources

func kernelInfo() string { return "" }
