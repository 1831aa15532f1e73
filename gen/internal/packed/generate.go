package packed

//go:generate go run mmreg gen --banks -p packed -o packed.go ../../../svd/testdata/packed.svd
