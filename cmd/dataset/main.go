package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/nvr-ai/go-lanes/dataset"
	"gocv.io/x/gocv"
)

func main() {
	var (
		index   int
		width   int
		height  int
		depth   int
		shuffle int64
		png     string
	)
	flag.IntVar(&index, "index", 10, "Record index to print")
	flag.IntVar(&width, "width", 160, "Image width of a record")
	flag.IntVar(&height, "height", 60, "Image height of a record")
	flag.IntVar(&depth, "depth", 1, "Image depth of a record")
	flag.Int64Var(&shuffle, "shuffle", 0, "Shuffle records with this seed before reading (0 keeps file order)")
	flag.StringVar(&png, "png", "", "Write the record image to this PNG file")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: dataset [flags] <records.npy>")
	}

	reader, err := dataset.Open(flag.Arg(0), dataset.Layout{Width: width, Height: height, Depth: depth})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%v\n", reader.Shape())

	if shuffle != 0 {
		reader.Shuffle(rand.New(rand.NewSource(shuffle)))
	}

	record, err := reader.Read(index)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%v\n", record.SteerOneHot)
	fmt.Printf("steer=%d speed=%d image=%v\n", record.Steer, record.Speed, record.Image.Shape())

	if png == "" {
		return
	}
	frame, err := record.Frame()
	if err != nil {
		log.Fatal(err)
	}
	mat, err := frame.ToMat()
	if err != nil {
		log.Fatal(err)
	}
	defer mat.Close()
	if ok := gocv.IMWrite(png, mat); !ok {
		log.Fatalf("failed to write %s", png)
	}
	fmt.Printf("wrote %s\n", png)
}
