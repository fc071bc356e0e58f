// Package chunkframe parses large delimited text and SVMLight-style sparse
// files into a column-oriented Frame.
//
// Input is read as independent byte chunks, in parallel, from a local file
// (memory mapped), an S3 object or a GCS object. Rows that cross chunk
// boundaries are stitched back together, every column is typed as numeric or
// categorical from a vote over the whole input, and categorical columns get a
// single sorted domain. The result does not depend on where the chunk
// boundaries fall or on how many workers ran.
//
// # Quick Start
//
//	cfg := config.NewDefault("train")
//	cfg.Source.URI = "s3://datasets/bestbuy_train.csv"
//	cfg.Parse.Header = true
//
//	frame, err := chunkframe.ParseURI(ctx, cfg, nil)
//	if err != nil {
//	    return err
//	}
//	sku, _ := frame.ColumnByName("sku")
//	fmt.Println(frame.NumRows(), sku.Type)
//
// # Key Packages
//
//	pkg/source       - Chunked byte sources (memory, file, S3, GCS) and decoding
//	pkg/parser       - Row scanning, boundary reconciliation, type votes, materialization
//	pkg/schema       - Column types, categorical domains, vote merging
//	pkg/columnar     - The Frame, Arrow export and checksums
//	pkg/config       - Configuration loading and validation
//	internal/pipeline - The parallel parse job
//
// # Missing Values
//
// Every missing or unparseable cell is NaN. Empty tokens, NA strings and
// non-numeric tokens in numeric columns are missing; rows narrower than the
// widest row are padded with NaN.
package chunkframe
